package classify

// System prompts sent with every classification request. The model is
// pinned to JSON-only output; llm.go additionally requests the
// json_object response format and strips stray code fences.

const primaryPrompt = `You classify media filenames for a home media library.
Given a filename and the name of its parent directory, respond with a single JSON object:
{"title": string, "type": "show"|"movie"|"unknown", "season": int|null, "episode": int|null, "year": int|null}
Rules:
- "title" is the human-readable series or movie title, original language preserved.
- "type" is "show" for episodic content, "movie" for films, "unknown" when unsure.
- "season"/"episode" only for shows; null otherwise.
- "year" is the release year when derivable from the name; null otherwise.
Respond with JSON only.`

const sidecarPrompt = `You classify sidecar files that accompany a media file in a home media library.
Given the standardized base name of the primary file and the sidecar filename, respond with a single JSON object:
{"role": string}
"role" is a short lowercase tag such as "poster", "fanart", "banner", "thumb", "subtitle", "info".
Use "" (empty string) when no role fits.
Respond with JSON only.`

const canonicalPrompt = `You merge raw media title variants for a home media library.
Given a JSON array of raw titles, respond with a single JSON object mapping every raw title to its canonical title:
{"<raw title>": "<canonical title>", ...}
Variants of the same work (translations, alternate formatting, release-group decorations) must map to one shared canonical English title.
Titles that are already canonical map to themselves.
Respond with JSON only.`
