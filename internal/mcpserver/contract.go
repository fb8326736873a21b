package mcpserver

// NoteGuide explains the note shape and matching rules to LLM consumers.
const NoteGuide = `# pocketnotes Note Guide

A note is a short label with a date and optional media links:

` + "```" + `json
{
  "id": "0d6f3c8e-...",                          // assigned on create, never changes
  "description": "Shopping",                      // the note text, max 500 characters
  "date": "2024-03-02T10:00:00Z",                 // RFC 3339; defaults to now on create
  "photo_url": "http://host/media/Photos/...",    // optional
  "audio_url": "http://host/media/Audios/..."     // optional
}
` + "```" + `

## Rules

1. **Descriptions identify notes.** ` + "`" + `get_note` + "`" + ` matches the description exactly,
   including case. ` + "`" + `update_note` + "`" + ` matches it ignoring case and surrounding spaces.
2. **Updates never create.** ` + "`" + `update_note` + "`" + ` fails when no note matches; use
   ` + "`" + `create_note` + "`" + ` for new notes.
3. **Descriptions are unique.** ` + "`" + `create_note` + "`" + ` rejects a description that already
   exists ignoring case and surrounding spaces.
4. **Updates replace the whole note.** Pass every field you want to keep, including
   ` + "`" + `photo_url` + "`" + ` and ` + "`" + `audio_url` + "`" + `.
5. **Deletes use the id**, not the description.
6. **Listing** returns notes newest first. With a filter it returns the notes whose
   description contains the filter (ignoring case), oldest first.

## Media

Attach media with ` + "`" + `attach_media` + "`" + `, passing an http(s) URL or a base64 data URI.
Photos are stored under ` + "`" + `Photos/` + "`" + ` and audio under ` + "`" + `Audios/` + "`" + `; the note is saved
with the new URL.
`
