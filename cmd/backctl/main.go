package main

import "github.com/sulpet/backoffice/cmd/backctl/cmd"

func main() {
	cmd.Execute()
}
