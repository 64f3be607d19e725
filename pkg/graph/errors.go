package graph

// ConfigurationError reports an invalid crawl configuration, detected before
// any network activity takes place.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + e.Reason
}
