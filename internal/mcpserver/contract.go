package mcpserver

// ManifestFormatContract describes the published manifest document for
// LLM consumers that read or post-process it.
const ManifestFormatContract = `# Icons Manifest Format Contract

The manifest published by iconsync is a single JSON document.

## Structure

` + "```" + `json
{
  "lastSyncTime": 1756500000000,
  "groups": [
    {
      "name": "Navigation",
      "icons": [
        {
          "id": "12:345",
          "name": "arrow-right",
          "type": "INSTANCE",
          "svg": "<svg ...>...</svg>",
          "lastModified": 1756500000000
        }
      ]
    }
  ]
}
` + "```" + `

## Rules

1. **` + "`" + `lastSyncTime` + "`" + `** and **` + "`" + `lastModified` + "`" + `** are milliseconds since the
   Unix epoch.
2. **Groups** appear in the order their containers appear on the Figma page.
   A group with no exportable icons keeps an empty ` + "`" + `icons` + "`" + ` array; it is
   never dropped.
3. **` + "`" + `name` + "`" + `** is a canonical slug: lowercase, non-alphanumeric runs collapsed
   to single hyphens, no leading or trailing hyphen. Names are unique across
   the whole manifest; collisions get the smallest unused ` + "`" + `-N` + "`" + ` suffix
   (` + "`" + `arrow-right` + "`" + `, ` + "`" + `arrow-right-1` + "`" + `, ...). A name that reduces to nothing
   becomes ` + "`" + `icon` + "`" + `.
4. **` + "`" + `id` + "`" + `** is the Figma node ID and is stable across syncs.
5. **` + "`" + `svg` + "`" + `** is the full inline SVG markup of the exported 24x24 node.
6. **Publishing target** is always the file ` + "`" + `figma-icons-manifest.json` + "`" + ` at
   the repository root, committed with the message
   ` + "`" + `feat: Update icons manifest - <N> icons` + "`" + `.
7. **Encoding** is UTF-8, two-space indentation.
`
