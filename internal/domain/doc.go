package domain

// Package domain contains the core concepts shared by every img2ascii front-end.
// Keep this package free of transport (HTTP, terminal) and infrastructure (Redis) concerns.
