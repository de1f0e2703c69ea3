package main

type FlagType int
type FlagMap map[FlagType]string

const (
	configPath FlagType = iota
	inputPath

	logFormat
)

// flagValue binds a command line flag to an entry in a FlagMap
type flagValue struct {
	flags FlagMap
	key   FlagType
}

func (v flagValue) String() string {
	return v.flags[v.key]
}

func (v flagValue) Set(value string) error {
	v.flags[v.key] = value
	return nil
}

func (v flagValue) Type() string {
	return "string"
}
