package main

import (
	"log"

	"tinylink/internal/app"
)

func main() {
	theApp, err := app.New()
	if err != nil {
		log.Fatalln("application initialization error:", err)
	}
	defer theApp.Close()

	if err := theApp.Run(); err != nil {
		log.Fatalln("application run error:", err)
	}
}
