package main

import "worktime/internal/app/server"

func main() {
	server.Run()
}
