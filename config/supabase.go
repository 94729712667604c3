package config

import (
	"fmt"
	"os"

	postgrest "github.com/supabase-community/postgrest-go"
)

// NewPostgrestClient builds a PostgREST client for the Supabase project
// configured through SUPABASE_URL and SUPABASE_SERVICE_KEY.
func NewPostgrestClient() (*postgrest.Client, error) {
	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseKey := os.Getenv("SUPABASE_SERVICE_KEY")

	if supabaseURL == "" || supabaseKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY must be set in environment variables")
	}

	client := postgrest.NewClient(supabaseURL+"/rest/v1", "", map[string]string{
		"apikey":        supabaseKey,
		"Authorization": fmt.Sprintf("Bearer %s", supabaseKey),
	})

	if client.ClientError != nil {
		return nil, fmt.Errorf("failed to initialize Supabase client: %w", client.ClientError)
	}

	return client, nil
}
