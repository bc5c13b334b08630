package main

import "time"

// GlobalFlags holds persistent flags shared by all commands.
type GlobalFlags struct {
	ConfigPath string
}

// APIFlags holds control-API connection flags for client commands.
type APIFlags struct {
	APIUrl     string
	APITimeout time.Duration
}

// LoginFlags holds flags for the login command.
type LoginFlags struct {
	API          APIFlags
	ClientSecret string
	RefreshToken string
	RememberMe   bool
}

// LogoutFlags holds flags for the logout command.
type LogoutFlags struct {
	API              APIFlags
	ClearCredentials bool
}

// RunFlags holds flags for the run command.
type RunFlags struct {
	NoAutoStart bool
}
