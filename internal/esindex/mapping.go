package esindex

// indexBody is the settings and mapping used when the issue index is created.
// Status names go through a lowercase normalizer so term queries match
// regardless of how the tracker capitalised them.
const indexBody = `{
  "settings": {
    "analysis": {
      "normalizer": {
        "lowercase_normalizer": {
          "type": "custom",
          "filter": ["lowercase"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "key":              {"type": "keyword"},
      "id":               {"type": "keyword"},
      "project_key":      {"type": "keyword"},
      "project_name":     {"type": "keyword"},
      "issue_type":       {"type": "keyword", "normalizer": "lowercase_normalizer"},
      "status":           {"type": "keyword", "normalizer": "lowercase_normalizer"},
      "status_category":  {"type": "keyword"},
      "summary":          {"type": "text", "fields": {"raw": {"type": "keyword", "ignore_above": 256}}},
      "assignee":         {"type": "keyword"},
      "reporter":         {"type": "keyword"},
      "labels":           {"type": "keyword"},
      "components":       {"type": "keyword"},
      "parent_key":       {"type": "keyword"},
      "parent_summary":   {"type": "text"},
      "resolution":       {"type": "keyword"},
      "created":          {"type": "date"},
      "updated":          {"type": "date"},
      "resolution_date":  {"type": "date"},

      "working_minutes_from_create":       {"type": "integer"},
      "working_minutes_in_current_status": {"type": "integer"},
      "working_minutes_from_first_move":   {"type": "integer"},
      "categorized": {
        "properties": {
          "backlog_minutes":    {"type": "integer"},
          "processing_minutes": {"type": "integer"},
          "waiting_minutes":    {"type": "integer"}
        }
      },
      "current_status":          {"type": "keyword", "normalizer": "lowercase_normalizer"},
      "previous_status":         {"type": "keyword", "normalizer": "lowercase_normalizer"},
      "total_transitions":       {"type": "integer"},
      "backflow_count":          {"type": "integer"},
      "unique_statuses_visited": {"type": "keyword", "normalizer": "lowercase_normalizer"},
      "first_exit_date":         {"type": "date"},
      "status_change_date":      {"type": "date"},
      "transitions": {
        "type": "nested",
        "properties": {
          "from_status":                {"type": "keyword", "normalizer": "lowercase_normalizer"},
          "to_status":                  {"type": "keyword", "normalizer": "lowercase_normalizer"},
          "transition_date":            {"type": "date"},
          "minutes_in_previous_status": {"type": "integer"},
          "days_in_previous_status":    {"type": "float"},
          "period_in_previous_status":  {"type": "keyword", "index": false},
          "is_forward":                 {"type": "boolean"},
          "is_backflow":                {"type": "boolean"},
          "author":                     {"type": "keyword"}
        }
      },
      "anomalies": {"type": "object", "enabled": false},

      "time_in_current_status_text": {"type": "keyword", "index": false},
      "time_from_create_text":       {"type": "keyword", "index": false},
      "days_in_current_status":      {"type": "float"},
      "sync_id":                     {"type": "keyword"},
      "indexed_at":                  {"type": "date"}
    }
  }
}`
