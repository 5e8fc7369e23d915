package cmd

import (
	"fmt"
	"os"

	"github.com/pastoralsj/registro/server"
	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the registry server",
	Long:  `Starts the volunteer-registry HTTP server on the configured store backend`,
	Run: func(cmd *cobra.Command, args []string) {
		// A rest backend without its settings is the signal to route
		// the operator into the configuration-capture flow.
		if config.GetString("store.backend") == "rest" &&
			(config.GetString("store.rest.url") == "" || config.GetString("store.rest.accessKey") == "") {
			fmt.Fprintf(os.Stderr, "%v the hosted service is not configured yet\n", warningLabel)
			cobra.CheckErr(formattedError("run 'registro configure' to capture the service URL and access key"))
		}

		if config.GetString("registro.privateKeyPem") == "" {
			cobra.CheckErr(formattedError(
				"no session signing key in %v; run 'registro configure'", config.ConfigFileUsed()))
		}

		server.Start(config, isDevEnv)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
