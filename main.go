package main

import "couple-diary-backend/cmd"

func main() {
	cmd.Run()
}
