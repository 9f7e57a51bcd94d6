package urls

// Project links shown in the terminal UI header and CLI help.

// Repository is the project home.
const Repository = "https://github.com/muurk/easyip"

// Issues is where unsupported models and parse failures are reported.
const Issues = Repository + "/issues"

// Releases lists published binaries.
const Releases = Repository + "/releases"
