package main

import (
	"context"
	"log"

	"github.com/Apurer/school-activities-api/internal/app/api"
)

func main() {
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("school activities API failed: %v", err)
	}
}
