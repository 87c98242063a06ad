package rabbitmq

type RabbitmqConfigJson struct {
	URL        string `json:"url"`
	Exchange   string `json:"exchange"`
	RoutingKey string `json:"routing_key"`
	MaxRetries int    `json:"max_retries"`
}

type RabbitmqConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
	MaxRetries int
}

func (rcj RabbitmqConfigJson) ConvertToDomain() RabbitmqConfig {
	return RabbitmqConfig{
		URL:        rcj.URL,
		Exchange:   rcj.Exchange,
		RoutingKey: rcj.RoutingKey,
		MaxRetries: rcj.MaxRetries,
	}
}

// Enabled reports whether a broker URL was configured.
func (rc RabbitmqConfig) Enabled() bool {
	return rc.URL != ""
}
