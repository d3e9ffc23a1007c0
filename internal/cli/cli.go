// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdLogin
	CmdSignup
	CmdLogout
	CmdStatus
	CmdChats
	CmdConfig
	CmdVersion
	CmdHelp
)

const usageText = `tutorchat - terminal client for the tutoring chat service

Usage:
  tutorchat                    Start TUI (default)
  tutorchat ask "question"     Ask a single question, stream the answer
    -s, --subject NAME         Subject hint for the tutor
    --plain                    Skip markdown rendering
  tutorchat chat               Interactive chat (plain REPL)
    -s, --subject NAME         Subject hint for the tutor
  tutorchat login              Sign in (prompts for password)
    -u, --username NAME        Username (prompted when omitted)
  tutorchat signup             Create an account and sign in
  tutorchat logout             Sign out and clear stored credentials
  tutorchat status             Show session and backend status
  tutorchat chats              List saved chats
    --limit N                  How many to list (default 100)
  tutorchat chats delete <id>  Delete a saved chat
  tutorchat chats delete-all --confirm
                               Delete every saved chat
  tutorchat config show        Print the active configuration
  tutorchat config path        Print the config file location
  tutorchat config set K V     Set a configuration value
  tutorchat version            Show version information
  tutorchat help               Show this help

Environment:
  TUTORCHAT_AUTH_URL, TUTORCHAT_API_URL, TUTORCHAT_AI_URL override the
  backend endpoints from the config file.
`

// Parse maps os.Args onto a command plus its remaining arguments.
func Parse() (Command, []string) {
	if len(os.Args) < 2 {
		return CmdTUI, nil
	}

	cmd := os.Args[1]
	rest := os.Args[2:]

	switch cmd {
	case "ask":
		return CmdAsk, rest
	case "chat":
		return CmdChat, rest
	case "login":
		return CmdLogin, rest
	case "signup":
		return CmdSignup, rest
	case "logout":
		return CmdLogout, rest
	case "status", "s":
		return CmdStatus, rest
	case "chats":
		return CmdChats, rest
	case "config":
		return CmdConfig, rest
	case "version", "--version", "-v":
		return CmdVersion, rest
	case "help", "--help", "-h":
		return CmdHelp, rest
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		return CmdHelp, rest
	}
}

// PrintUsage writes the usage text to stdout.
func PrintUsage() {
	fmt.Print(usageText)
}

// PrintVersion writes version information to stdout.
func PrintVersion() {
	fmt.Printf("tutorchat %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
}
