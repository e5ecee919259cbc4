package assemble

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteM3U emits the catalog in extended playlist format. epgURLs, when
// non-empty, are joined into the x-tvg-url header attribute.
func WriteM3U(w io.Writer, out *Output, epgURLs []string) error {
	bw := bufio.NewWriter(w)
	if len(epgURLs) > 0 {
		fmt.Fprintf(bw, "#EXTM3U x-tvg-url=%q\n", strings.Join(epgURLs, ","))
	} else {
		fmt.Fprintln(bw, "#EXTM3U")
	}
	for _, cat := range out.Categories {
		if len(cat.Entries) == 0 {
			continue
		}
		fmt.Fprintf(bw, "#EXTGRP:%s\n", cat.Name)
		for _, e := range cat.Entries {
			id := e.Record.TVGID
			if id == "" {
				id = e.Want
			}
			fmt.Fprintf(bw, "#EXTINF:-1 tvg-id=%q tvg-name=%q tvg-logo=%q group-title=%q,%s\n",
				id, e.Want, e.Record.TVGLogo, cat.Name, e.Want)
			fmt.Fprintln(bw, e.Display)
		}
	}
	return bw.Flush()
}

// WriteTXT emits the catalog in the loose "name,url" format with
// "#genre#" category markers.
func WriteTXT(w io.Writer, out *Output) error {
	bw := bufio.NewWriter(w)
	for _, cat := range out.Categories {
		if len(cat.Entries) == 0 {
			continue
		}
		fmt.Fprintf(bw, "%s,#genre#\n", cat.Name)
		for _, e := range cat.Entries {
			fmt.Fprintf(bw, "%s,%s\n", e.Want, e.Display)
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}
