package githubapi

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testFullDrainCaseNameConstant     = "drains_every_page"
	testShortFirstPageCaseNameConst   = "short_first_page_stops"
	testEmptyListingCaseNameConstant  = "empty_listing"
	testFetchFailureCaseNameConstant  = "fetch_failure_propagates"
	testPaginationPageSizeConstant    = 3
	testPaginationFailureMessageConst = "listing failed"
)

func TestPaginateDrainsAllPages(testInstance *testing.T) {
	testCases := []struct {
		name          string
		pages         [][]int
		fetchError    error
		expectedItems []int
		expectedCalls int
		expectError   bool
	}{
		{
			name:          testFullDrainCaseNameConstant,
			pages:         [][]int{{1, 2, 3}, {4, 5, 6}, {7}},
			expectedItems: []int{1, 2, 3, 4, 5, 6, 7},
			expectedCalls: 3,
		},
		{
			name:          testShortFirstPageCaseNameConst,
			pages:         [][]int{{1, 2}},
			expectedItems: []int{1, 2},
			expectedCalls: 1,
		},
		{
			name:          testEmptyListingCaseNameConstant,
			pages:         [][]int{{}},
			expectedItems: []int{},
			expectedCalls: 1,
		},
		{
			name:          testFetchFailureCaseNameConstant,
			fetchError:    errors.New(testPaginationFailureMessageConst),
			expectedCalls: 1,
			expectError:   true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fetchCalls := 0
			fetcher := func(requestContext context.Context, pageNumber int, pageSize int) ([]int, error) {
				fetchCalls++
				require.Equal(testInstance, fetchCalls, pageNumber)
				require.Equal(testInstance, testPaginationPageSizeConstant, pageSize)
				if testCase.fetchError != nil {
					return nil, testCase.fetchError
				}
				return testCase.pages[pageNumber-1], nil
			}

			collectedItems, paginationError := Paginate(context.Background(), testPaginationPageSizeConstant, fetcher)
			if testCase.expectError {
				require.Error(testInstance, paginationError)
				require.Nil(testInstance, collectedItems)
			} else {
				require.NoError(testInstance, paginationError)
				require.Equal(testInstance, testCase.expectedItems, collectedItems)
			}
			require.Equal(testInstance, testCase.expectedCalls, fetchCalls)
		})
	}
}
