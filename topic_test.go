package router

import "testing"

func TestMatches(t *testing.T) {
	tests := []struct {
		name   string
		topic  Topic
		filter Filter
		want   bool
	}{
		{"exact match", "topic/a", "topic/a", true},
		{"exact mismatch", "topic/a", "topic/b", false},
		{"single level wildcard", "topic/a", "topic/+", true},
		{"single level wildcard mismatch depth", "topic/a/b", "topic/+", false},
		{"plus matches empty-looking middle level", "topic//a", "topic/+/a", true},
		{"multi-level wildcard matches everything under prefix", "topic/a/b/c", "topic/#", true},
		{"multi-level wildcard matches zero remaining levels", "topic", "topic/#", true},
		{"bare hash matches all topics", "anything/at/all", "#", true},
		{"combined wildcards", "a/b/c", "+/+/#", true},
		{"leading plus mismatched level count", "a", "+/+", false},
		{"case sensitive", "Topic/A", "topic/a", false},
		{"dollar-prefixed topic never matches leading plus", "$SYS/broker/clients", "+/broker/clients", false},
		{"dollar-prefixed topic never matches leading hash", "$SYS/broker/clients", "#", false},
		{"dollar-prefixed topic matches exact filter", "$SYS/broker/clients", "$SYS/broker/clients", true},
		{"dollar-prefixed topic matches non-leading wildcard", "$SYS/broker/clients", "$SYS/+/clients", true},
		{"trailing slash level", "topic/a/", "topic/a/+", true},
		{"empty filter level via plus", "topic/", "topic/+", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matches(tt.topic, tt.filter); got != tt.want {
				t.Errorf("matches(%q, %q) = %v, want %v", tt.topic, tt.filter, got, tt.want)
			}
		})
	}
}

func TestValidateFilter(t *testing.T) {
	tests := []struct {
		name    string
		filter  Filter
		wantErr error
	}{
		{"empty filter", "", errFilterEmpty},
		{"plain filter", "topic/a", nil},
		{"lone plus level", "topic/+", nil},
		{"lone hash at end", "topic/#", nil},
		{"bare hash", "#", nil},
		{"bare plus", "+", nil},
		{"plus mixed into level", "topic/a+", errFilterWildcardLevel},
		{"hash mixed into level", "topic/a#", errFilterWildcardLevel},
		{"hash not last level", "topic/#/a", errFilterHashNotLast},
		{"multiple wildcard levels", "+/+/#", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFilter(tt.filter)
			if err != tt.wantErr {
				t.Errorf("validateFilter(%q) = %v, want %v", tt.filter, err, tt.wantErr)
			}
		})
	}
}

func TestValidateTopic(t *testing.T) {
	tests := []struct {
		name    string
		topic   Topic
		wantErr error
	}{
		{"empty topic", "", errTopicEmpty},
		{"plain topic", "topic/a", nil},
		{"topic with plus", "topic/+", errTopicHasWildcard},
		{"topic with hash", "topic/#", errTopicHasWildcard},
		{"dollar-prefixed topic is fine", "$SYS/broker/clients", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTopic(tt.topic)
			if err != tt.wantErr {
				t.Errorf("validateTopic(%q) = %v, want %v", tt.topic, err, tt.wantErr)
			}
		})
	}
}
