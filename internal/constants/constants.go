package constants

import "time"

var CacheConfig = struct {
	FlushDebounce time.Duration
	FlushTimeout  time.Duration
	RedisHashKey  string
}{
	FlushDebounce: 2 * time.Second, // 번역 캐시 저장 지연 (연속 저장 병합)
	FlushTimeout:  10 * time.Second,
	RedisHashKey:  "quickaccess:translations",
}

var TranslationConfig = struct {
	RequestTimeout time.Duration
	MaxConcurrent  int
	MaxTextLength  int
}{
	RequestTimeout: 30 * time.Second,
	MaxConcurrent:  4,
	MaxTextLength:  200,
}

var BridgeConfig = struct {
	HandshakeTimeout     time.Duration
	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
}{
	HandshakeTimeout:     10 * time.Second,
	MaxReconnectAttempts: 5,
	ReconnectDelay:       5 * time.Second,
}

var CircuitBreakerConfig = struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	RateLimitTimeout    time.Duration
	HealthCheckInterval time.Duration
}{
	FailureThreshold:    3,                // 3회 연속 실패 시 Circuit OPEN
	ResetTimeout:        30 * time.Second, // 기본 재시도 대기 시간
	RateLimitTimeout:    1 * time.Hour,    // 429 Rate Limit 전용 타임아웃
	HealthCheckInterval: 10 * time.Minute,
}

var StudioConfig = struct {
	RequestTimeout time.Duration
}{
	RequestTimeout: 10 * time.Second,
}
