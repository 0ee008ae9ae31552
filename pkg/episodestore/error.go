package episodestore

// NotFoundError is returned when an episode doesn't exist in the store.
type NotFoundError struct {
	UUID string
}

func (e NotFoundError) Error() string {
	if e.UUID == "" {
		return "episode not found"
	}

	return "episode not found: " + e.UUID
}
