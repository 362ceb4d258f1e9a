package mcpserver

// DocumentFormatContract describes the diary's persisted JSON document so
// LLM consumers know what the tools operate on.
const DocumentFormatContract = `# Bautagebuch Document Format

The entire diary persists as one JSON document with four top-level fields.
Missing fields are treated as empty on load.

` + "```" + `json
{
  "preConstruction":  { "<field-key>": "<text>" },
  "dailyEntries":     [ { ... } ],
  "postConstruction": { "<field-key>": "<text>" },
  "milestones":       [ { ... } ]
}
` + "```" + `

## Sections (preConstruction / postConstruction)

Free-form field maps; keys come from the form layer and are not validated.
A value is either a plain string or, for file inputs, a list of metadata
records (file binary content is never stored):

` + "```" + `json
"site-plan": [ { "name": "plan.pdf", "size": 123456, "type": "application/pdf", "lastModified": 1700000000000 } ]
` + "```" + `

## Daily entries

` + "```" + `json
{
  "id": 3,
  "date": "2024-03-15",
  "weather": "sonnig",
  "temperature": "18",
  "personal": "", "equipment": "", "materials": "",
  "progress": "", "issues": "", "inspections": "",
  "safety": "", "photoDescription": ""
}
` + "```" + `

Ids are integers, unique within the document, never reused. All other
fields are free text.

## Milestones

` + "```" + `json
{
  "id": "1710500000000-k3f9a2bx1",
  "title": "Rohbau fertig",
  "description": "",
  "category": "construction",
  "priority": "high",
  "date": "2024-03-15",
  "duration": 5,
  "status": "planned",
  "progress": 0
}
` + "```" + `

Rules:

1. status is one of planned, in-progress, completed.
2. A completed milestone always has progress 100.
3. duration is a positive day count; anything else collapses to 1.
4. date is YYYY-MM-DD; a trailing time component is tolerated and ignored
   by the calendar projection.
`
