/*bench_plot renders the timing table written by mdbench as a bar-style
pyplot figure, one point per configuration.

Example:
    $ mdbench -Config engine.cfg -Particles snap.txt > timings.txt
    $ go run bench_plot.go timings.txt
*/
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	plt "github.com/phil-mansfield/pyplot"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("Required file use: $ %s timing_file", os.Args[0])
	}

	labels, secs, err := readTimings(os.Args[1])
	if err != nil {
		log.Fatalf(err.Error())
	}
	if len(secs) == 0 {
		log.Fatalf("No timings in %s", os.Args[1])
	}

	idxs := make([]float64, len(secs))
	for i := range idxs {
		idxs[i] = float64(i)
	}

	plt.Reset()
	plt.Plot(idxs, secs, "ok")
	plt.XLabel("configuration")
	plt.YLabel("seconds / step")
	plt.Show()

	for i := range labels {
		fmt.Printf("%2d: %s (%.6f s)\n", i, labels[i], secs[i])
	}
}

// readTimings parses mdbench output: four label columns and a seconds
// column, comment lines skipped.
func readTimings(fname string) ([]string, []float64, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	labels, secs := []string{}, []float64{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 5 {
			return nil, nil, fmt.Errorf(
				"line %q does not have 5 columns", line)
		}
		s, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, nil, err
		}
		labels = append(labels, strings.Join(fields[:4], " "))
		secs = append(secs, s)
	}
	return labels, secs, scanner.Err()
}
