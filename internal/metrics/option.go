package metrics

// Provider names a metric reader.
type Provider string

const (
	PrometheusProvider Provider = "prometheus"
	OtelCollector      Provider = "otlp"
)

// Config collects the metric provider settings.
type Config struct {
	ServiceName string
	Provider    []ProviderCfg
}

// ProviderCfg configures one reader.
type ProviderCfg struct {
	Provider Provider
	Endpoint string
	Headers  map[string]string
	Insecure bool
}

// OptionFn configures NewMetricProvider.
type OptionFn func(config Config) Config

// WithPrometheus exposes metrics for scraping through Handler.
func WithPrometheus() OptionFn {
	return func(config Config) Config {
		config.Provider = append(config.Provider, ProviderCfg{Provider: PrometheusProvider})
		return config
	}
}

// WithOtelCollector pushes metrics to an OTLP gRPC collector.
func WithOtelCollector(url string, headers map[string]string, insecure bool) OptionFn {
	return func(config Config) Config {
		config.Provider = append(config.Provider, ProviderCfg{
			Provider: OtelCollector,
			Endpoint: url,
			Headers:  headers,
			Insecure: insecure,
		})
		return config
	}
}

// WithServiceName sets the service.name resource attribute.
func WithServiceName(serviceName string) OptionFn {
	return func(config Config) Config {
		config.ServiceName = serviceName
		return config
	}
}
