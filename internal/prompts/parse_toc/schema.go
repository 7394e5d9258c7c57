package parse_toc

// EntriesSchema validates the model's output: a JSON array of
// {topic, page} objects.
const EntriesSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["topic", "page"],
    "properties": {
      "topic": { "type": "string", "minLength": 1 },
      "page": { "type": "integer", "minimum": 1 }
    },
    "additionalProperties": true
  }
}`
