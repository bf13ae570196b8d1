package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/legacykeeper/internal/flagx"
	"github.com/dmitrijs2005/legacykeeper/internal/timex"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      release grant validity, minutes
//	-k int      release token validity, days
//	-i duration scheduler interval (e.g., "15m")
//	-o duration collaborator timeout (e.g., "10s")
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-w string   public base URL for notification links
//	-l string   default notification language
//	-v string   log level
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-s", "-t", "-k", "-i", "-o", "-u", "-p", "-b", "-g", "-e", "-w", "-l", "-v",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	grantValidity := fs.Int("t", int(config.GrantValidityDuration.Minutes()), "release grant validity (in minutes)")
	tokenValidity := fs.Int("k", int(config.ReleaseTokenValidityDuration.Hours()/24), "release token validity (in days)")

	fs.DurationVar(&config.SchedulerInterval, "i", config.SchedulerInterval, "release cycle interval")
	fs.DurationVar(&config.CollaboratorTimeout, "o", config.CollaboratorTimeout, "collaborator call timeout")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.PublicBaseURL, "w", config.PublicBaseURL, "public base URL")
	fs.StringVar(&config.DefaultLanguage, "l", config.DefaultLanguage, "default notification language")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.GrantValidityDuration = time.Duration(*grantValidity) * time.Minute
	config.ReleaseTokenValidityDuration = timex.Days(*tokenValidity)
}
