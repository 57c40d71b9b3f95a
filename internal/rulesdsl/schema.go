package rulesdsl

// packSchema is the JSON schema a rule pack must satisfy once decoded from
// YAML.
const packSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["rules"],
  "additionalProperties": false,
  "properties": {
    "rules": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "severity", "message"],
        "additionalProperties": false,
        "properties": {
          "id":       {"type": "string", "pattern": "^[a-z0-9][a-z0-9-]*$"},
          "summary":  {"type": "string"},
          "docs":     {"type": "string"},
          "severity": {"type": "string", "enum": ["violation", "warning"]},
          "message":  {"type": "string", "minLength": 1},
          "where": {
            "type": "object",
            "additionalProperties": false,
            "properties": {
              "kind":        {"type": "string", "enum": ["any", "test", "extra", "setup", "teardown", "hook"]},
              "callee":      {"type": "string"},
              "text_regex":  {"type": "string"},
              "scope_regex": {"type": "string"}
            }
          }
        }
      }
    }
  }
}`
