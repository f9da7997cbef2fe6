package main

import "github.com/scienceol/awake/cmd"

func main() {
	cmd.Execute()
}
