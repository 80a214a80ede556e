package cmd

import (
	"github.com/jessevdk/go-flags"
	"github.com/nguyengg/pvzip/internal/config"
)

type Pvzip struct {
	Profile string  `short:"p" long:"profile" description:"override the AWS profile from .pvzip if given"`
	Package Package `command:"package" alias:"pkg" description:"package a directory, zip, or tar file into a versioned zip file"`
	List    List    `command:"list" alias:"ls" description:"list the headers of tar files without extracting them"`
}

func NewParser() (*flags.Parser, error) {
	opts := &Pvzip{}

	p := flags.NewNamedParser("pvzip", flags.Default)
	if _, err := p.AddGroup("Global Options", "", opts); err != nil {
		return nil, err
	}

	p.CommandHandler = func(command flags.Commander, args []string) error {
		if opts.Profile != "" {
			config.DefaultLoader.Profile = opts.Profile
		}

		return command.Execute(args)
	}

	return p, nil
}
