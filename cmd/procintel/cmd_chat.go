package main

import (
	"github.com/spf13/cobra"

	"procintel/cmd/procintel/chat"
	"procintel/internal/ux"
)

// chatCmd starts the interactive chat
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat",
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	src, st, err := openSource()
	if err != nil {
		return err
	}
	ccfg := chat.Config{
		Engine:          newEngine(),
		Source:          src,
		ThinkingDelay:   cfg.GetThinkingDelay(),
		RespondingDelay: cfg.GetRespondingDelay(),
		Theme:           ux.DetectTheme(),
	}
	if st != nil {
		defer st.Close()
		ccfg.Log = st
	}
	r, err := ux.NewRenderer(ccfg.Theme, cfg.UI.WordWrap, cfg.UI.Render)
	if err != nil {
		return err
	}
	ccfg.Renderer = r
	return chat.Run(cmd.Context(), ccfg)
}
