package main

import "github.com/cybou-fr/cybs3/cmd"

func main() {
	cmd.Execute()
}
