package main

// Set via -ldflags "-X main.Version=... -X main.GitCommit=... -X main.BuildDate=..."
var (
	Version   = "dev"
	GitCommit = ""
	BuildDate = "" // RFC3339
)
