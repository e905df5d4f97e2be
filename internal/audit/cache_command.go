package audit

import (
	"strings"

	"github.com/spf13/cobra"
)

const (
	cacheCommandUseConstant           = "cache"
	cacheCommandShortDescription      = "Manage the audit result cache"
	cacheCommandLongDescription       = "Cache groups maintenance operations for the on-disk audit result cache."
	cacheClearCommandUseConstant      = "clear [path]"
	cacheClearCommandShortDescription = "Remove the persisted audit cache of a repository"
)

// CacheCommandBuilder assembles the cache maintenance cobra commands.
type CacheCommandBuilder struct {
	LoggerProvider LoggerProvider
}

// Build constructs the cache command group.
func (builder *CacheCommandBuilder) Build() (*cobra.Command, error) {
	cacheCommand := &cobra.Command{
		Use:   cacheCommandUseConstant,
		Short: cacheCommandShortDescription,
		Long:  cacheCommandLongDescription,
	}

	clearCommand := &cobra.Command{
		Use:   cacheClearCommandUseConstant,
		Short: cacheClearCommandShortDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE:  builder.runClear,
	}
	clearCommand.Flags().String(flagConfigName, "", flagConfigDescription)

	cacheCommand.AddCommand(clearCommand)
	return cacheCommand, nil
}

func (builder *CacheCommandBuilder) runClear(command *cobra.Command, arguments []string) error {
	configFlag, _ := command.Flags().GetString(flagConfigName)

	commandBuilder := CommandBuilder{LoggerProvider: builder.LoggerProvider}
	logger := commandBuilder.resolveLogger()

	service := NewService(logger, nil, command.OutOrStdout(), command.ErrOrStderr())
	return service.ClearCache(repositoryPathFromArguments(arguments), strings.TrimSpace(configFlag))
}
