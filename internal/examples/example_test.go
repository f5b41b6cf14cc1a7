// Package examples holds runnable documentation for the service layer.
package examples

import (
	"context"
	"fmt"

	"tinylink/internal/db/memorystorage"
	"tinylink/internal/service"
)

func ExampleService_Register() {
	theStorage, _ := memorystorage.New(6, 10)
	theService := service.New(theStorage, "http://localhost:8080")

	usr, err := theService.Register(context.Background(), "alice@example.com", "secret123")
	if err != nil {
		fmt.Println("registration failed:", err)
		return
	}

	fmt.Println(usr.Email)
	fmt.Println(len(usr.ID))
	// Output:
	// alice@example.com
	// 6
}

func ExampleService_ShortenURL() {
	ctx := context.Background()
	theStorage, _ := memorystorage.New(6, 10)
	theService := service.New(theStorage, "http://localhost:8080")

	usr, _ := theService.Register(ctx, "alice@example.com", "secret123")

	shortURL, _ := theService.ShortenURL(ctx, "http://example.org", usr.ID)
	code := theService.GetShortURLKey(shortURL)

	original, _ := theService.GetOriginalURL(ctx, code)
	fmt.Println(original)
	// Output:
	// http://example.org
}

func ExampleService_GetUserURLs() {
	ctx := context.Background()
	theStorage, _ := memorystorage.New(6, 10)
	theService := service.New(theStorage, "http://localhost:8080")

	usr, _ := theService.Register(ctx, "alice@example.com", "secret123")

	urls, _ := theService.GetUserURLs(ctx, usr.ID)
	fmt.Println(len(urls))

	_, _ = theService.ShortenURL(ctx, "http://example.org", usr.ID)

	urls, _ = theService.GetUserURLs(ctx, usr.ID)
	fmt.Println(len(urls))
	// Output:
	// 0
	// 1
}
