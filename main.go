package main

import "github.com/nrad-K/car-catalog/cmd"

func main() {
	cmd.Execute()
}
