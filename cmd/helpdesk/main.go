package main

import "github.com/spec-kit/helpdesk-console/internal/cli"

var version = "dev"

func main() {
	cli.Execute(version)
}
