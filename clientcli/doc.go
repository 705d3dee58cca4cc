// Package clientcli provides a client library for downloading archives from
// zipstream servers.
//
// The package includes profile-based configuration for managing connections
// to multiple servers.
//
// # Basic Usage
//
// Create a client and download an archive:
//
//	client, err := clientcli.New(&clientcli.Config{Endpoint: "http://localhost:8080"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, _, err := client.Download(ctx, clientcli.DownloadOptions{
//		ArchiveID: "wedding1",
//	})
//
// Downloads are written to a temporary file first and only renamed into place
// once the server finished the archive. A transfer that ends early fails with
// ErrIncompleteArchive.
//
// Servers with job history enabled report finished jobs page by page:
//
//	page, err := client.Jobs(ctx, clientcli.JobsOptions{ArchiveID: "wedding1", Limit: 20})
//	// page.NextCursor feeds JobsOptions.Cursor for the next page
//
// # Profile Configuration
//
// Use profiles to manage multiple server configurations:
//
//	configFile, err := clientcli.LoadConfigFile(clientcli.DefaultConfigPath())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("production")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := clientcli.New(clientcli.ConfigFromProfile(profile))
//
// # Output Formatting
//
// Use formatters for human-readable or JSON output:
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatList(os.Stdout, result)
package clientcli
