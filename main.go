package main

import "recall-backend/cmd"

func main() {
	cmd.Run()
}
