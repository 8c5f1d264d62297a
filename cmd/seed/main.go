package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"welfare-chat-be/internal/model"
	"welfare-chat-be/pkg/database"
	"welfare-chat-be/pkg/embedding"

	"github.com/joho/godotenv"
	"github.com/pgvector/pgvector-go"
)

// seedDocument is the JSON shape of one policy in the seed file.
type seedDocument struct {
	Title        string `json:"title"`
	Requirements string `json:"requirements"`
	Benefits     string `json:"benefits"`
	Region       string `json:"region"`
	Url          string `json:"url"`
}

func main() {
	seedPath := flag.String("file", "seed/policies.json", "path to the policy seed file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	baseURL := getEnv("OLLAMA_BASE_URL", "http://localhost:11434")
	modelName := getEnv("OLLAMA_EMBEDDING_MODEL", "bge-m3")
	embedder := embedding.NewOllamaProvider(baseURL, modelName)

	docs, err := loadSeedFile(*seedPath)
	if err != nil {
		log.Fatalf("Error: Failed to load seed file: %v", err)
	}
	log.Printf("Seeding %d policy documents...", len(docs))

	inserted := 0
	for _, seed := range docs {
		doc := &model.PolicyDocument{
			Title:        seed.Title,
			Requirements: seed.Requirements,
			Benefits:     seed.Benefits,
			Region:       seed.Region,
			Url:          seed.Url,
		}
		if err := db.Create(doc).Error; err != nil {
			log.Printf("Warn: insert %q failed: %v", seed.Title, err)
			continue
		}

		// Embed the same text the retrieval path displays.
		text := fmt.Sprintf("%s\n%s\n%s", seed.Title, seed.Requirements, seed.Benefits)
		res, err := embedder.Generate(text, embedding.TaskRetrievalDocument)
		if err != nil {
			log.Printf("Warn: embedding %q failed: %v", seed.Title, err)
			continue
		}

		emb := &model.DocumentEmbedding{
			DocId:          doc.Id,
			EmbeddingValue: pgvector.NewVector(res.Values),
		}
		if err := db.Create(emb).Error; err != nil {
			log.Printf("Warn: embedding row for %q failed: %v", seed.Title, err)
			continue
		}
		inserted++
	}

	log.Printf("Done. %d/%d documents seeded with embeddings.", inserted, len(docs))
}

func loadSeedFile(path string) ([]seedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var docs []seedDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
