package flags

const Verbose = `verbose`
const VerboseShort = `v`
const Quiet = `quiet`
const QuietShort = `q`
const Plain = `plain`
const PlainShort = `p`
const Dirs = `dirs`
const DirsShort = `d`
const Config = `config`
const Or = `or`
const Literal = `literal`
const ByName = `by-name`
const Tree = `tree`
const TagUntagged = `tag-untagged`
const Watch = `watch`
