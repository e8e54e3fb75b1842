package main

import "github.com/KaramelBytes/productpulse/cmd"

func main() {
	cmd.Execute()
}
