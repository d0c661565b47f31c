package main

import "github.com/atikulmunna/logpage/internal/cmd"

func main() {
	cmd.Execute()
}
