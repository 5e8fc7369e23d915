package main

import "github.com/pastoralsj/registro/cmd"

func main() {
	cmd.Execute()
}
