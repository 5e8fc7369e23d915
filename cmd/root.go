package cmd

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	devconfig "github.com/pastoralsj/registro/dev/config"
	"github.com/pastoralsj/registro/utils"
	"github.com/pastoralsj/registro/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	config  *viper.Viper

	isDevEnv bool

	yellow       = color.New(color.FgYellow).SprintFunc()
	red          = color.New(color.FgRed).SprintFunc()
	warningLabel = yellow("Warning:")
)

// rootCmd represents the base command when called without any subcommands
var rootCmd *cobra.Command

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd = createRootCmd()
	rootCmd.Version = fmt.Sprintf("v%s", version.Version)
}

func createRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use: "registro",
		Short: `registro is the parish volunteer-registry service.

It keeps the member/agent records of the pastoral, handles login by
login-name plus birth date, and serves the registry's exports and
reports over HTTP.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/registro/server.yml)")
	cmd.PersistentFlags().BoolVarP(&isDevEnv, "dev", "", false, "run in development mode")

	return cmd
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	config = viper.New()

	configFilePath := cfgFile
	if configFilePath == "" {
		var err error
		configFilePath, err = defaultConfigFilePath()
		cobra.CheckErr(err)

		// If config file is not found, create one with defaults so the
		// configure flow has something to edit.
		if !utils.FileExist(configFilePath) {
			err = ioutil.WriteFile(configFilePath, []byte(defaultConfigValue()), 0600)
			cobra.CheckErr(err)
			fmt.Fprintf(os.Stderr, "%v created default config file %v\n", warningLabel, configFilePath)
		}
	}

	config.SetConfigFile(configFilePath)

	// The access key can live in the system env instead of the file.
	config.BindEnv("store.rest.accessKey", "REGISTRO_STORE_ACCESS_KEY")
	config.AutomaticEnv() // read in environment variables that match

	if err := config.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", config.ConfigFileUsed())
	}
}

func defaultConfigFilePath() (string, error) {
	// Use home directory for production
	rootDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(rootDir, "registro")

	if isDevEnv {
		rootDir, err = os.Getwd()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(rootDir, "dev", "config")

		// Dev mode ships a ready-to-run config.
		devConfigFile := filepath.Join(configDir, "server.yml")
		if err := utils.CreateDirIfNotExist(filepath.Join(rootDir, "dev")); err != nil {
			return "", err
		}
		if err := utils.CreateDirIfNotExist(configDir); err != nil {
			return "", err
		}
		if !utils.FileExist(devConfigFile) {
			if err := ioutil.WriteFile(devConfigFile, []byte(devconfig.SERVER_YML), 0600); err != nil {
				return "", err
			}
		}

		return devConfigFile, nil
	}

	if err := utils.CreateDirIfNotExist(configDir); err != nil {
		return "", err
	}

	return filepath.Join(configDir, "server.yml"), nil
}

// defaultConfigValue returns the default content for server.yml
func defaultConfigValue() string {
	return `registro:
 # RSA private key PEM used to sign session tokens.
 # 'registro configure' generates one for you when this is empty.
 privateKeyPem:
 listener:
  port: 3000
 cron:
  timeZone: "America/Sao_Paulo"

# 'rest' points at the hosted database service ('registro configure'
# captures the URL and access key); 'sqlite' keeps an encrypted local db.
store:
 backend: sqlite
 rest:
  url:
  accessKey:
  table: membros
 sqlite:
  passPhrase: passphrase

cep:
 baseUrl: "https://viacep.com.br"

google:
 applicationCredentials:
 storage:
  bucket:
  prefix: registro
  backupSchedule: "0 3 * * *"
  enableBackup: false
`
}

func formattedError(format string, a ...interface{}) error {
	return fmt.Errorf(red(format), a...)
}
