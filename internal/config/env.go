package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables read by ApplyEnv.
const (
	EnvProject       = "BRANCHEVAL_PROJECT"
	EnvEntity        = "BRANCHEVAL_ENTITY"
	EnvDatabase      = "BRANCHEVAL_DB"
	EnvPolicy        = "BRANCHEVAL_POLICY"
	EnvBaseline      = "BRANCHEVAL_BASELINE"
	EnvMetrics       = "BRANCHEVAL_METRICS"
	EnvHistoryRows   = "BRANCHEVAL_HISTORY_ROWS"
	EnvDiagnoseLimit = "BRANCHEVAL_DIAGNOSE_LIMIT"
	EnvConcurrency   = "BRANCHEVAL_CONCURRENCY"
	EnvFetchTimeout  = "BRANCHEVAL_FETCH_TIMEOUT"

	EnvS3Endpoint  = "BRANCHEVAL_S3_ENDPOINT"
	EnvS3Region    = "BRANCHEVAL_S3_REGION"
	EnvS3Bucket    = "BRANCHEVAL_S3_BUCKET"
	EnvS3Prefix    = "BRANCHEVAL_S3_PREFIX"
	EnvS3AccessKey = "BRANCHEVAL_S3_ACCESS_KEY"
	EnvS3SecretKey = "BRANCHEVAL_S3_SECRET_KEY"
	EnvS3UseSSL    = "BRANCHEVAL_S3_USE_SSL"
)

func envString(key string, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("parse %s: %w", key, err)
		}
		return d, nil
	}
	return def, nil
}

func envBool(key string, def bool) (bool, error) {
	if v, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("parse %s: %w", key, err)
		}
		return b, nil
	}
	return def, nil
}

func envInt(key string, def int) (int, error) {
	if v, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("parse %s: %w", key, err)
		}
		return i, nil
	}
	return def, nil
}

// envList splits a comma-separated variable, dropping blank entries.
func envList(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	return SplitList(v)
}

// SplitList splits a comma-separated list, trimming spaces and dropping
// blank entries. It never returns nil.
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
