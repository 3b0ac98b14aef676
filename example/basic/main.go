package main

import (
	"context"
	"fmt"
	"log"
	"time"

	newsgraph "github.com/siherrmann/newsgraph"
	"github.com/siherrmann/newsgraph/helper"
	"github.com/siherrmann/newsgraph/model"
)

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	ng, err := newsgraph.NewNewsgraph(dbConfig, 384)
	if err != nil {
		log.Fatalf("Failed to create newsgraph: %v", err)
	}
	defer ng.Close()

	// Set up the default local embedding model
	if err := ng.UseDefaultEmbedder(); err != nil {
		log.Fatalf("Failed to set up embedder: %v", err)
	}

	ctx := context.Background()
	publishedAt := time.Now().AddDate(0, 0, -3)

	// Ingest the extraction output of one news article
	fmt.Println("Ingesting article...")
	report, err := ng.IngestExtraction(ctx,
		&model.Document{
			Key:         "techwire-2026-0142",
			Title:       "Acme AI raises Series B led by Northbridge Capital",
			Source:      "techwire",
			PublishedAt: &publishedAt,
		},
		[]model.EntityMention{
			{
				Name:        "Acme AI",
				Type:        model.EntityTypeCompany,
				Description: "Startup building language model tooling for enterprises",
				Properties:  model.Properties{"industry": "artificial intelligence"},
			},
			{
				Name:        "Northbridge Capital",
				Type:        model.EntityTypeInvestor,
				Description: "Venture firm focused on early-stage infrastructure companies",
			},
			{
				Name:        "Jane Moreau",
				Type:        model.EntityTypePerson,
				Description: "Co-founder and chief executive of Acme AI",
			},
		},
		[]model.RelationshipMention{
			{
				SourceName: "Acme AI", SourceType: model.EntityTypeCompany,
				TargetName: "Northbridge Capital", TargetType: model.EntityTypeInvestor,
				Type: model.RelationshipFundedBy,
			},
			{
				SourceName: "Acme AI", SourceType: model.EntityTypeCompany,
				TargetName: "Jane Moreau", TargetType: model.EntityTypePerson,
				Type: model.RelationshipFoundedBy,
			},
		},
	)
	if err != nil {
		log.Fatalf("Failed to ingest extraction: %v", err)
	}
	fmt.Printf("Created %d entities and %d relationships\n",
		report.EntitiesCreated, report.RelationshipsCreated)

	// A second article mentioning the same company under a name variant
	// merges into the existing entities instead of creating duplicates
	report, err = ng.IngestExtraction(ctx,
		&model.Document{
			Key:    "bizdaily-2026-0089",
			Title:  "Acme AI Inc. expands engineering team",
			Source: "bizdaily",
		},
		[]model.EntityMention{
			{
				Name:        "Acme AI Inc.",
				Type:        model.EntityTypeCompany,
				Description: "AI tooling startup headquartered in Berlin",
			},
		},
		nil,
	)
	if err != nil {
		log.Fatalf("Failed to ingest extraction: %v", err)
	}
	fmt.Printf("Second article: %d created, %d merged\n",
		report.EntitiesCreated, report.EntitiesMerged)

	// Ask a question; without an LLM backend the answer is the rendered
	// graph context in degraded mode
	question := "Who is Acme AI funded by?"
	fmt.Printf("\nAsking: %s\n", question)

	answer, err := ng.Ask(ctx, question)
	if err != nil {
		log.Fatalf("Failed to answer question: %v", err)
	}

	fmt.Printf("Intent: %s (confidence %.2f)\n", answer.Intent.Kind, answer.Intent.Confidence)
	fmt.Printf("Degraded: %v\n", answer.Degraded)
	fmt.Printf("Answer:\n%s\n", answer.Text)

	// Semantic entity search
	fmt.Println("\nSearching for: venture capital firms")
	results, err := ng.Search(ctx, "venture capital firms", model.DefaultQueryConfig())
	if err != nil {
		log.Fatalf("Failed to search: %v", err)
	}
	for _, result := range results {
		fmt.Printf("- %s (%s), score %.3f\n",
			result.Entity.Name, result.Entity.Type, result.Score)
	}
}
