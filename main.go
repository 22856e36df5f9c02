package main

import "github.com/difygen/difygen/cmd"

func main() {
	cmd.Execute()
}
