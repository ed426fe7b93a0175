package app

import "github.com/spf13/pflag"

// RegisterFlags registers the flags of a build run on the given FlagSet
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("fasta", "f", "", "Reference FASTA file defining the query universe (\"-\" reads stdin)")
	flags.StringP("control-file", "c", "", "Control file declaring the annotation sources (tab-separated or YAML)")
	flags.StringP("outtable", "o", "", "Output annotation table (tab-separated)")
	flags.StringP("sprotmap", "s", "", "SwissProt mapping file used by enrich=yes sources")
	flags.String("summary", "", "Also write a JSON run summary to this path")
	registerCommonFlags(flags)
	flags.Duration("lock-timeout", 0, "How long to wait for another run holding the output lock (default 30s)")
}

// RegisterServeFlags registers the flags of the annotation explorer
func RegisterServeFlags(flags *pflag.FlagSet) {
	flags.StringP("table", "t", "", "Annotation table produced by a build run")
	flags.IntP("max-results", "m", 0, "Maximum search results per query (default 20)")
	registerCommonFlags(flags)
}

func registerCommonFlags(flags *pflag.FlagSet) {
	flags.StringP("log-level", "l", "", "Log level: debug, info, warn or error (default warn)")
	flags.String("na-rep", "", "Token used for missing values (default NA)")
}
