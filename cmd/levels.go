package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cefrkit/placement/internal/cefr"
	"github.com/cefrkit/placement/internal/engine"
)

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "Show the CEFR scale and the test plan of each skill",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("CEFR levels")
		fmt.Println(strings.Repeat("─", 24))
		for _, l := range cefr.Levels() {
			fmt.Printf("%-4s  %s\n", l, l.ExamTag())
		}

		presets := []engine.SkillConfig{
			engine.ReadingConfig(nil),
			engine.ListeningConfig(nil),
			engine.VocabularyConfig(nil),
			engine.SpeakingConfig(nil, nil),
		}
		fmt.Println()
		fmt.Println("Skills")
		fmt.Println(strings.Repeat("─", 56))
		fmt.Printf("%-12s  %-6s  %5s  %5s  %s\n", "Skill", "Start", "Items", "Batch", "Rule")
		for _, p := range presets {
			start := p.DefaultStart.String()
			if p.ForcedStart != nil {
				start = p.ForcedStart.String() + "*"
			}
			fmt.Printf("%-12s  %-6s  %5d  %5d  %s\n", p.Skill, start, p.Total, p.BatchSize, p.Rule.Name())
		}
		fmt.Printf("%-12s  %-6s  %5d  %5s  %s\n", "writing", "-", 1, "-", "rubric")
		fmt.Println("\n* start level is fixed")
	},
}
