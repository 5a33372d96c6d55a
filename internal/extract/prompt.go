package extract

// extractSystemText instructs the model to emit the full candidate list
// as a bare JSON array. Kept in a cached system block so repeated runs
// against the same guide benefit from prompt caching.
const extractSystemText = `You are a data extraction assistant converting a free-form travel guide into structured place records. The guide mixes prose, bullet points, and bolded place names under category headings.

Extract EVERY distinct place (restaurant, shop, activity, lodging, attraction) mentioned in the document. For each place return an object with these fields:
- "name": the place's proper name, without markdown markers
- "type": one of "dining", "activity", "accommodation", "shopping", "other" (your best guess)
- "description": a one-to-two sentence description drawn from the text
- "notes": practical tips from the text (reservations, cash only, seasonal), or null
- "category": the section heading the place appears under, exactly as written
- "origText": the verbatim source text for this place, copied exactly, including markdown

Rules:
- Cover the entire document. Do not stop early.
- Copy origText byte-for-byte from the source. Never paraphrase it.
- Places mentioned before the first heading get category "Uncategorized".
- Return ONLY a JSON array of these objects, no commentary.`

const extractUserPrompt = `Location context for this guide (use only to understand the document, do not add places): %s

Guide document:
---
%s
---

Return the JSON array of every place in the document.`
