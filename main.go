package main

import "github.com/dwiprasetya/gatepass-management/cmd"

func main() {
	cmd.Execute()
}
