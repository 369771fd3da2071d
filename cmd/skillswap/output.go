package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/skillswap/client/internal/directory"
	"github.com/skillswap/client/internal/domain"
)

func printCards(w io.Writer, cards []domain.Card) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLOCATION\tAVAILABILITY\tRATING\tOFFERS\tWANTS")
	for _, c := range cards {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Name, c.Location, c.Availability, rating(c.Rating, c.TotalReviews),
			strings.Join(c.SkillsOffered, ", "), strings.Join(c.SkillsWanted, ", "))
	}
	tw.Flush()
}

func printCard(w io.Writer, c *domain.Card) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Name\t%s\n", c.Name)
	fmt.Fprintf(tw, "Location\t%s\n", c.Location)
	fmt.Fprintf(tw, "Availability\t%s\n", c.Availability)
	fmt.Fprintf(tw, "Rating\t%s\n", rating(c.Rating, c.TotalReviews))
	fmt.Fprintf(tw, "Swaps\t%d\n", c.CompletedSwaps)
	fmt.Fprintf(tw, "Offers\t%s\n", strings.Join(c.SkillsOffered, ", "))
	fmt.Fprintf(tw, "Wants\t%s\n", strings.Join(c.SkillsWanted, ", "))
	fmt.Fprintf(tw, "Photo\t%s\n", c.Photo)
	if c.Bio != "" {
		fmt.Fprintf(tw, "Bio\t%s\n", c.Bio)
	}
	tw.Flush()
}

func printProfile(w io.Writer, p *domain.Profile) {
	if p == nil {
		return
	}
	visibility := "private"
	if p.IsProfilePublic {
		visibility = "public"
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Name\t%s %s\n", p.FirstName, p.LastName)
	fmt.Fprintf(tw, "Email\t%s\n", p.Email)
	fmt.Fprintf(tw, "Location\t%s\n", p.Location)
	fmt.Fprintf(tw, "Availability\t%s\n", p.Availability.View())
	fmt.Fprintf(tw, "Visibility\t%s\n", visibility)
	fmt.Fprintf(tw, "Offers\t%s\n", strings.Join(p.SkillsOffered, ", "))
	fmt.Fprintf(tw, "Wants\t%s\n", strings.Join(p.SkillsWanted, ", "))
	if p.ProfilePhoto != "" {
		fmt.Fprintf(tw, "Photo\t%s\n", p.ProfilePhoto)
	}
	if p.Bio != "" {
		fmt.Fprintf(tw, "Bio\t%s\n", p.Bio)
	}
	tw.Flush()
}

func rating(avg float64, reviews int) string {
	if reviews == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f (%d)", avg, reviews)
}

// renderPages marks the current page with brackets
func renderPages(pages []int, current int) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		switch p {
		case directory.Ellipsis:
			parts = append(parts, "...")
		case current:
			parts = append(parts, "["+strconv.Itoa(p)+"]")
		default:
			parts = append(parts, strconv.Itoa(p))
		}
	}
	return strings.Join(parts, " ")
}
