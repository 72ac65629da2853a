package instance

import "github.com/angelmondragon/partfinderz-backend/pkg/env"

// GetID returns the identifier of the running api process. Heroku style dyno
// names win over the container hostname.
func GetID() string {
	if id := env.Get("DYNO", ""); id != "" {
		return id
	}
	return env.Get("HOSTNAME", "local")
}
