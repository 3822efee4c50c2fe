package env

import (
	"os"

	"github.com/joho/godotenv"
)

// Load reads dotenv files without overriding variables already present in the
// process environment. Later paths take precedence over earlier ones.
func Load(paths ...string) error {
	for i := len(paths) - 1; i >= 0; i-- {
		p := paths[i]
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return err
		}
	}
	return nil
}
